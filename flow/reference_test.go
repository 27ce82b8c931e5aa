package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/richinex/genlo/model"
)

func TestImageFromHistory(t *testing.T) {
	tests := []struct {
		name  string
		turns []model.Turn
		want  string
	}{
		{"empty", nil, ""},
		{"no markers", []model.Turn{model.UserTurn("hello")}, ""},
		{
			"image marker",
			[]model.Turn{model.UserTurn("see [Image: https://example.com/a.png]")},
			"https://example.com/a.png",
		},
		{
			"markdown image",
			[]model.Turn{model.AssistantTurn("done ![result](https://example.com/b.png) enjoy")},
			"https://example.com/b.png",
		},
		{
			"inline data uri",
			[]model.Turn{model.UserTurn("here data:image/png;base64,QUJD== thanks")},
			"data:image/png;base64,QUJD==",
		},
		{
			"newest turn wins",
			[]model.Turn{
				model.UserTurn("[Image: https://example.com/old.png]"),
				model.UserTurn("[Image: https://example.com/new.png]"),
				model.UserTurn("no image here"),
			},
			"https://example.com/new.png",
		},
		{
			"last marker in a turn wins",
			[]model.Turn{model.UserTurn("[Image: https://example.com/1.png] then ![x](https://example.com/2.png)")},
			"https://example.com/2.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, imageFromHistory(tt.turns))
		})
	}
}

func TestEffectiveReferenceScanWindow(t *testing.T) {
	ctrl := New(&fakeCreative{}, &fakeGenerator{}, Options{})

	turns := []model.Turn{model.UserTurn("[Image: https://example.com/too-old.png]")}
	for i := 0; i < model.HistoryScanWindow; i++ {
		turns = append(turns, model.UserTurn("filler"))
	}
	ctrl.history.Replace(turns)

	assert.Equal(t, "", ctrl.effectiveReference(""))
	assert.Equal(t, "https://example.com/explicit.png", ctrl.effectiveReference("https://example.com/explicit.png"))
}
