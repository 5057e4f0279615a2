package utils

import "strconv"

// FormatChatID renders a numeric Telegram chat id as the string session id
// used throughout the booking core.
func FormatChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
