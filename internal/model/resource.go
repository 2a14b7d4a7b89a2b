package model

import "time"

// Resource categories of the mental-health directory.
const (
	CategoryArticle  = "Article"
	CategoryExercise = "Exercise"
	CategoryVideo    = "Video"
)

// Resource is an entry of the mental-health resource directory.
type Resource struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Category    string    `json:"category" yaml:"category"`
	URL         string    `json:"url,omitempty" yaml:"url"`
	Content     string    `json:"content,omitempty" yaml:"content"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// Tool is an external app or service listed in the tools directory.
type Tool struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Link        string `json:"link" yaml:"link"`
}

// ToolGroup is a titled list of tools.
type ToolGroup struct {
	Key   string `json:"key" yaml:"key"`
	Title string `json:"title" yaml:"title"`
	Tools []Tool `json:"tools" yaml:"tools"`
}
