// Package browser opens work pages in the user's default browser.
package browser

import (
	"fmt"

	pkgbrowser "github.com/pkg/browser"
)

// Opener opens a URL for the user.
type Opener interface {
	Open(url string) error
}

// System opens URLs with the platform's default browser.
type System struct{}

func (System) Open(url string) error {
	if err := pkgbrowser.OpenURL(url); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

// WorkURL fills the work id into a template such as "https://shequ.codemao.cn/work/%d".
func WorkURL(template string, id int64) string {
	return fmt.Sprintf(template, id)
}
