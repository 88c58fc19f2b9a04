package models

// User is a directory row served by the lookup API. Rows are created once by
// the startup seeder and never mutated afterwards.
type User struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string `gorm:"size:100" json:"name"`
	Email string `gorm:"size:100" json:"email"`
}

// TableName pins the table name so existing deployments keep reading `users`.
func (User) TableName() string {
	return "users"
}
