package domain

import "strings"

// User: данные пользователя для отображения. Клиент их не изменяет,
// кроме эха после редактирования профиля.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
}

// FullName склеивает имя и фамилию.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Session: пара токен + пользователь. Срок действия на клиенте не проверяется.
type Session struct {
	Token string
	User  User
}

// Valid сообщает, что в сессии есть и токен, и пользователь.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}

// Address: адрес доставки пользователя.
type Address struct {
	ID         string `json:"id,omitempty"`
	Label      string `json:"label,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
}

// ContactMessage: обращение через форму обратной связи.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}
