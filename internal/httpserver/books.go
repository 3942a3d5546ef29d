package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/openlibro/library-api/internal/logging"
	"github.com/openlibro/library-api/internal/models"
	"github.com/openlibro/library-api/internal/repo"
	"github.com/openlibro/library-api/internal/search"
)

type BookHTTP struct {
	Repo repo.GormRepo
	ES   *elasticsearch.Client
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func (h *BookHTTP) List(c echo.Context) error {
	books, err := h.Repo.ListBooks(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, books)
}

func (h *BookHTTP) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	book, err := h.Repo.FindBookByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrBookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, book)
}

func (h *BookHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book_create")

	var req struct {
		Title       string `json:"title"`
		Author      string `json:"author"`
		IsAvailable *bool  `json:"is_available"`
	}
	if err := c.Bind(&req); err != nil || req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	book := models.Book{
		Title:       req.Title,
		Author:      req.Author,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		book.IsAvailable = *req.IsAvailable
	}

	if err := h.Repo.CreateBook(ctx, &book); err != nil {
		l.Error("book_create_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.IndexBook(ctx, h.ES, &book); err != nil {
			l.Error("es_index_error", "book_id", book.ID, "error", err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Book added",
		"id":      book.ID,
	})
}

func (h *BookHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book_update")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Title       string `json:"title"`
		Author      string `json:"author"`
		IsAvailable *bool  `json:"is_available"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	book, err := h.Repo.FindBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrBookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if req.Title != "" {
		book.Title = req.Title
	}
	if req.Author != "" {
		book.Author = req.Author
	}
	if req.IsAvailable != nil {
		book.IsAvailable = *req.IsAvailable
	}

	if err := h.Repo.UpdateBook(ctx, book); err != nil {
		l.Error("book_update_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.IndexBook(ctx, h.ES, book); err != nil {
			l.Error("es_index_error", "book_id", book.ID, "error", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Book updated"})
}

func (h *BookHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book_delete")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Repo.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, repo.ErrBookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.DeleteBook(ctx, h.ES, id); err != nil {
			l.Error("es_delete_error", "book_id", id, "error", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Book deleted"})
}

func (h *BookHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()

	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	from, _ := strconv.Atoi(c.QueryParam("from"))
	size, err := strconv.Atoi(c.QueryParam("size"))
	if err != nil || size <= 0 || size > 100 {
		size = 20
	}

	total, books, err := search.SearchBooks(ctx, h.ES, query, from, size)
	if err != nil {
		logging.FromContext(ctx).Error("es_search_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"books": books,
	})
}
