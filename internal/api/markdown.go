// ABOUTME: Markdown rendering of task descriptions for format=html
// ABOUTME: Uses goldmark with GFM; raw HTML in descriptions is not passed through

package api

import (
	"bytes"

	"github.com/2389/taskboard/internal/store"
)

// taskView is a task with its description rendered as HTML.
type taskView struct {
	store.Task
	DescriptionHTML string `json:"descriptionHtml"`
}

// renderTasks converts each task description from Markdown. Raw HTML in the
// source is omitted by the renderer.
func (a *API) renderTasks(tasks []store.Task) ([]taskView, error) {
	views := make([]taskView, len(tasks))
	var buf bytes.Buffer
	for i, t := range tasks {
		buf.Reset()
		if err := a.markdown.Convert([]byte(t.Description), &buf); err != nil {
			return nil, err
		}
		views[i] = taskView{Task: t, DescriptionHTML: buf.String()}
	}
	return views, nil
}
