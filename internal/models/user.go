package models

// User is an account created by the local identity provider. Accounts created
// through Supabase never reach this table.
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex" json:"email"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"-"`
	IsVerified   bool   `json:"is_verified"`
}
