package render

import (
	"fmt"

	"insightviz/internal/models"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	placeholderWidth  = 600
	placeholderHeight = 300
)

// placeholder draws the error text in place of a chart that failed to draw.
func placeholder(spec models.ChartSpec, t Theme, cause error) (*RenderedChart, error) {
	dc := gg.NewContext(placeholderWidth, placeholderHeight)
	if !t.Transparent {
		dc.SetColor(t.Background)
		dc.Clear()
	}

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(t.Foreground)
	if spec.Title != "" {
		dc.DrawStringAnchored(spec.Title, placeholderWidth/2, 40, 0.5, 0.5)
	}
	msg := fmt.Sprintf("Error creating chart: %v", cause)
	dc.DrawStringWrapped(msg, placeholderWidth/2, placeholderHeight/2, 0.5, 0.5,
		placeholderWidth-80, 1.5, gg.AlignCenter)

	chart, err := encode(spec, dc.Image())
	if err != nil {
		return nil, err
	}
	chart.Placeholder = true
	return chart, nil
}
