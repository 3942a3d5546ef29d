package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlibro/library-api/internal/logging"
	"github.com/openlibro/library-api/internal/models"
	"github.com/openlibro/library-api/internal/mykafka"
	"github.com/openlibro/library-api/internal/repo"
	"github.com/openlibro/library-api/internal/service"
)

type LoanHTTP struct {
	Repo     repo.GormRepo
	Producer *mykafka.Producer
}

func loanJSON(loan *models.Loan) echo.Map {
	m := echo.Map{
		"loan_id":       loan.LoanID,
		"book_id":       loan.BookID,
		"user_id":       loan.UserID,
		"checkout_date": loan.CheckoutDate.Format("2006-01-02"),
		"return_date":   nil,
	}
	if loan.ReturnDate != nil {
		m["return_date"] = loan.ReturnDate.Format("2006-01-02")
	}
	if loan.Book.ID != 0 {
		m["book_title"] = loan.Book.Title
	}
	if loan.User.ID != 0 {
		m["user_name"] = loan.User.Name
	}
	return m
}

func (h *LoanHTTP) List(c echo.Context) error {
	loans, err := h.Repo.ListLoans(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	result := make([]echo.Map, len(loans))
	for i := range loans {
		result[i] = loanJSON(&loans[i])
	}
	return c.JSON(http.StatusOK, result)
}

func (h *LoanHTTP) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	loan, err := h.Repo.FindLoanByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrLoanNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "loan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, loanJSON(loan))
}

func (h *LoanHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "loan_checkout")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrUnauthenticated.Error())
	}

	var req struct {
		BookID uint `json:"book_id"`
	}
	if err := c.Bind(&req); err != nil || req.BookID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "book_id is required")
	}

	loan, err := h.Repo.CheckoutBook(ctx, req.BookID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrBookNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		case errors.Is(err, repo.ErrBookUnavailable):
			return echo.NewHTTPError(http.StatusBadRequest, "book is already checked out")
		default:
			l.Error("checkout_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	event := map[string]interface{}{
		"type":    "book_checked_out",
		"loan_id": loan.LoanID,
		"book_id": loan.BookID,
		"user_id": loan.UserID,
	}
	if err := h.Producer.PublishEvent(ctx, "loan_events", fmt.Sprint(loan.LoanID), event); err != nil {
		l.Error("kafka_publish_error", "error", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "book checked out",
		"loan_id":       loan.LoanID,
		"checkout_date": loan.CheckoutDate.Format("2006-01-02"),
	})
}

func (h *LoanHTTP) Return(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "loan_return")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	loan, err := h.Repo.ReturnBook(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrLoanNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "loan not found")
		case errors.Is(err, repo.ErrAlreadyReturned):
			return echo.NewHTTPError(http.StatusBadRequest, "loan already returned")
		default:
			l.Error("return_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	event := map[string]interface{}{
		"type":    "book_returned",
		"loan_id": loan.LoanID,
		"book_id": loan.BookID,
		"user_id": loan.UserID,
	}
	if err := h.Producer.PublishEvent(ctx, "loan_events", fmt.Sprint(loan.LoanID), event); err != nil {
		l.Error("kafka_publish_error", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "book returned",
		"loan_id":     loan.LoanID,
		"return_date": loan.ReturnDate.Format("2006-01-02"),
	})
}
