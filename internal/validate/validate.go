package validate

import "fmt"

// Text field length limits — single source of truth for forms and API.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 5000
	MaxCommentLength     = 1000
	MaxNameLength        = 100
	MaxUsernameLength    = 50
	MaxHashtagInput      = 500
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func Title(s string) string       { return checkLen(s, MaxTitleLength, "title") }
func Description(s string) string { return checkLen(s, MaxDescriptionLength, "description") }
func CommentText(s string) string { return checkLen(s, MaxCommentLength, "comment") }
func Name(s string) string        { return checkLen(s, MaxNameLength, "name") }
func Username(s string) string    { return checkLen(s, MaxUsernameLength, "username") }
func Hashtags(s string) string    { return checkLen(s, MaxHashtagInput, "hashtags") }
