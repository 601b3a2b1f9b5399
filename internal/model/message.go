package model

// Button is an inline keyboard button carrying callback data.
type Button struct {
	Text string `json:"text"`
	Data string `json:"callback_data"`
}

// Message is an outbound chat message. Photo, when set, is sent with Text as caption.
type Message struct {
	ChatID   int64
	Text     string
	Keyboard [][]Button
	Photo    []byte
}
