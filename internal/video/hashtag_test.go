package video

import (
	"reflect"
	"testing"
)

func TestFormatHashtags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"mixed input", "cat, Funny Dog,#wow", []string{"#cat", "#funnydog", "#wow"}},
		{"already prefixed", "#go,#web", []string{"#go", "#web"}},
		{"empty input", "", []string{}},
		{"only separators", ", ,,", []string{}},
		{"bare hash dropped", "#, cats", []string{"#cats"}},
		{"uppercase folded", "GOLANG", []string{"#golang"}},
		{"inner whitespace stripped", "  funny   dog  ", []string{"#funnydog"}},
		{"preserves order", "zebra, apple, mango", []string{"#zebra", "#apple", "#mango"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatHashtags(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("formatHashtags(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
