package extract

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"lecture-slides-backend/internal/testutil"
)

func TestExtractTextConcatenatesPagesWithoutSeparator(t *testing.T) {
	e := NewExtractor(Options{Policy: PolicyStrict})

	res, err := e.ExtractText(context.Background(), testutil.BuildPDF("Hello", "World"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if res.Text != "HelloWorld" {
		t.Errorf("Text = %q, want %q", res.Text, "HelloWorld")
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2", res.Pages)
	}
	if res.WordCount != 1 || res.CharacterCount != len("HelloWorld") {
		t.Errorf("counts = %d words / %d chars", res.WordCount, res.CharacterCount)
	}
}

func TestExtractTextWithValidation(t *testing.T) {
	e := NewExtractor(Options{Policy: PolicyStrict, Validate: true})

	res, err := e.ExtractText(context.Background(), testutil.BuildPDF("Lecture", " 1"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if res.Text != "Lecture 1" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestExtractTextRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		validate bool
		want     error
	}{
		{"empty", nil, false, ErrEmptyPDF},
		{"not a pdf", []byte("definitely not a pdf"), false, ErrInvalidPDF},
		{"not a pdf validated", []byte("definitely not a pdf"), true, ErrInvalidPDF},
		{"truncated", testutil.BuildPDF("Hello")[:40], false, ErrInvalidPDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(Options{Validate: tt.validate})
			_, err := e.ExtractText(context.Background(), tt.content)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJoinPagesPolicies(t *testing.T) {
	pages := map[int]string{1: "one", 3: "three"}
	read := func(i int) (string, error) {
		if i == 2 {
			return "", errors.New("bad font")
		}
		if i == 4 {
			panic("corrupt stream")
		}
		return pages[i], nil
	}

	t.Run("strict aborts", func(t *testing.T) {
		_, _, err := joinPages(context.Background(), 4, PolicyStrict, read)
		if !errors.Is(err, ErrPageExtraction) {
			t.Fatalf("err = %v, want ErrPageExtraction", err)
		}
	})

	t.Run("lenient skips", func(t *testing.T) {
		text, failed, err := joinPages(context.Background(), 4, PolicyLenient, read)
		if err != nil {
			t.Fatalf("err = %v", err)
		}
		if text != "onethree" {
			t.Errorf("text = %q", text)
		}
		if !reflect.DeepEqual(failed, []int{2, 4}) {
			t.Errorf("failed = %v", failed)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, _, err := joinPages(ctx, 4, PolicyLenient, read); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}

func TestNewExtractorDefaultsToStrict(t *testing.T) {
	if e := NewExtractor(Options{}); e.policy != PolicyStrict {
		t.Errorf("policy = %q", e.policy)
	}
}
