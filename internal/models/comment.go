package models

import "strings"

// Comment represents a pull request review comment
type Comment struct {
	ID              int64  `json:"id"`
	AuthorLogin     string `json:"author_login"`
	AuthorAvatarURL string `json:"author_avatar_url"`
	Body            string `json:"body"`
	HTMLURL         string `json:"html_url"`
	InReplyToID     *int64 `json:"in_reply_to_id"`
	ReviewID        *int64 `json:"review_id"`
}

// Mentions checks if the comment body mentions @login
func (c *Comment) Mentions(login string) bool {
	if login == "" {
		return false
	}
	return strings.Contains(c.Body, "@"+login)
}
