package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openlibro/library-api/internal/models"
)

var (
	ErrLoanNotFound    = errors.New("loan not found")
	ErrBookUnavailable = errors.New("book is already checked out")
	ErrAlreadyReturned = errors.New("loan already returned")
)

func (r *GormRepo) ListLoans(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	if err := r.DB.WithContext(ctx).
		Preload("Book").Preload("User").
		Order("loan_id").Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *GormRepo) FindLoanByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := r.DB.WithContext(ctx).
		Preload("Book").Preload("User").
		Where("loan_id = ?", id).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// CheckoutBook creates the loan and flips availability in one transaction.
func (r *GormRepo) CheckoutBook(ctx context.Context, bookID, userID uint) (*models.Loan, error) {
	var loan *models.Loan
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Where("id = ?", bookID).First(&book).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if !book.IsAvailable {
			return ErrBookUnavailable
		}

		loan = &models.Loan{
			BookID:       bookID,
			UserID:       userID,
			CheckoutDate: time.Now(),
		}
		if err := tx.Create(loan).Error; err != nil {
			return err
		}

		return tx.Model(&models.Book{}).
			Where("id = ?", bookID).
			Update("is_available", false).Error
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ReturnBook stamps the return date and restores availability.
func (r *GormRepo) ReturnBook(ctx context.Context, loanID uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loan_id = ?", loanID).First(&loan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if loan.ReturnDate != nil {
			return ErrAlreadyReturned
		}

		now := time.Now()
		loan.ReturnDate = &now
		if err := tx.Model(&models.Loan{}).
			Where("loan_id = ?", loanID).
			Update("return_date", now).Error; err != nil {
			return err
		}

		return tx.Model(&models.Book{}).
			Where("id = ?", loan.BookID).
			Update("is_available", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}
