package channel

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/iamroi/otpbroker/internal/pkg/storage"
)

type fakeStorage struct {
	objects map[string]string
}

func (s *fakeStorage) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	body, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *fakeStorage) StatObject(_ context.Context, bucket, key string) (storage.ObjectInfo, error) {
	if _, ok := s.objects[bucket+"/"+key]; !ok {
		return storage.ObjectInfo{}, errors.New("object not found")
	}

	return storage.ObjectInfo{Bucket: bucket, Key: key}, nil
}

func (s *fakeStorage) Close() error { return nil }

func TestLoadTemplate(t *testing.T) {
	t.Run("TrimsSurroundingWhitespace", func(t *testing.T) {
		// Arrange
		st := &fakeStorage{objects: map[string]string{
			"templates/otp.txt": "\nYour code is {token}.\n",
		}}

		// Act
		tpl, err := LoadTemplate(context.Background(), st, "templates", "otp.txt")

		// Assert
		if err != nil {
			t.Fatalf("load template: %v", err)
		}
		if tpl != "Your code is {token}." {
			t.Fatalf("unexpected template %q", tpl)
		}

		_, body := DefaultBuilder("", tpl)("a@b.com", "12345")
		if body != "Your code is 12345." {
			t.Fatalf("unexpected rendered body %q", body)
		}
	})

	t.Run("MissingObject", func(t *testing.T) {
		// Arrange
		st := &fakeStorage{objects: map[string]string{}}

		// Act
		_, err := LoadTemplate(context.Background(), st, "templates", "missing.txt")

		// Assert
		if err == nil {
			t.Fatalf("expected error for missing object")
		}
	})
}
