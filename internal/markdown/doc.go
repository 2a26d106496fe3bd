// Package markdown renders Markdown article bodies to HTML with goldmark and
// optionally sanitises HTML with a bluemonday UGC policy.
package markdown
