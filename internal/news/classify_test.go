package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		title       string
		description string
		want        Category
	}{
		{
			name:  "ranji trophy is domestic",
			title: "Ranji Trophy final moved to neutral venue",
			want:  CategoryDomestic,
		},
		{
			name:        "bcci in description is domestic",
			title:       "Selectors name squad for home series",
			description: "The BCCI announced a 15-man squad on Tuesday.",
			want:        CategoryDomestic,
		},
		{
			name:  "ipl short token matches whole word only",
			title: "IPL auction: the full list of signings",
			want:  CategoryDomestic,
		},
		{
			name:  "short token does not match inside another word",
			title: "Triple century puts hosts in command",
			want:  CategoryWorld,
		},
		{
			name:  "ashes coverage is world",
			title: "Australia retain the Ashes at the MCG",
			want:  CategoryWorld,
		},
		{
			name:        "empty input defaults to world",
			title:       "",
			description: "",
			want:        CategoryWorld,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.title, tc.description))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	title := "India clinch the series at Eden Gardens"
	desc := "A five-wicket haul seals it."

	first := Classify(title, desc)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Classify(title, desc))
	}
}
