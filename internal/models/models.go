package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
	TokenVersion int    `gorm:"not null;default:0"       json:"-"`
}

type Book struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"not null"                 json:"title"`
	Author      string `json:"author"`
	IsAvailable bool   `gorm:"default:true"             json:"is_available"`
}

type Loan struct {
	LoanID       uint       `gorm:"primaryKey;autoIncrement" json:"loan_id"`
	BookID       uint       `gorm:"index;not null"           json:"book_id"`
	UserID       uint       `gorm:"index;not null"           json:"user_id"`
	CheckoutDate time.Time  `gorm:"not null"                 json:"checkout_date"`
	ReturnDate   *time.Time `json:"return_date"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`
}
