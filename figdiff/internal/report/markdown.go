package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	mdOnce      sync.Once
	mdConverter *converter.Converter

	descPolicy = bluemonday.UGCPolicy()
)

func markdownConverter() *converter.Converter {
	mdOnce.Do(func() {
		mdConverter = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		)
	})
	return mdConverter
}

// Markdown converts a rendered report page to a Markdown summary. The
// style block is dropped by the base plugin.
func Markdown(page string) (string, error) {
	md, err := markdownConverter().ConvertString(page)
	if err != nil {
		return "", fmt.Errorf("report: markdown: %w", err)
	}
	return md, nil
}

// Description renders a component description written in Markdown to
// sanitised HTML.
func Description(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("report: description: %w", err)
	}
	return template.HTML(descPolicy.SanitizeBytes(buf.Bytes())), nil
}
