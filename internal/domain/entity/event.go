package entity

// Member — участник чата в нормализованном входящем событии.
type Member struct {
	ID        int64
	IsBot     bool
	Username  string
	FirstName string
}

// DisplayName возвращает имя для упоминания: username, иначе first name.
func (m Member) DisplayName() string {
	if m.Username != "" {
		return m.Username
	}
	return m.FirstName
}

// JoinEvent — в чат вошёл один или несколько участников.
// MessageID — идентификатор служебного сообщения "user joined".
type JoinEvent struct {
	ChatID    int64
	MessageID int
	Members   []Member
}

// LeaveEvent — участник покинул чат.
// MessageID — идентификатор служебного сообщения "user left".
type LeaveEvent struct {
	ChatID    int64
	MessageID int
	Member    Member
}

// MessageEvent — обычное сообщение участника.
type MessageEvent struct {
	ChatID    int64
	MessageID int
	Sender    Member
	Text      string
}
