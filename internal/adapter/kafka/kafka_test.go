package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetbcn/clinic-directory/internal/config"
	"github.com/vetbcn/clinic-directory/internal/domain"
)

func testClinic() domain.Clinic {
	lat, lng := 41.3789, 2.1602
	monday := "9:00-20:00"
	return domain.Clinic{
		ID:          "5b0c7a52-8f1c-5d8e-9a55-3c1f0e2d4b6a",
		SourceID:    "75990208561",
		Slug:        "clinica-veterinaria-sant-antoni",
		Name:        "Clínica Veterinària Sant Antoni",
		Barrio:      "Sant Antoni",
		Phone:       "934 234 567",
		Rating:      4.6,
		Price:       2,
		Specialties: []string{domain.SpecialtyPreventive},
		AnimalTypes: []string{domain.AnimalDogs, domain.AnimalCats},
		Languages:   []string{"Catalán", "Castellano"},
		Hours:       domain.Schedule{"monday": &monday, "sunday": nil},
		Lat:         &lat,
		Lng:         &lng,
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	clinic := testClinic()

	msg, err := serializeToMessage(clinic, now)
	require.NoError(t, err)

	assert.Equal(t, []byte(clinic.ID), msg.Key)
	assert.Contains(t, string(msg.Value), `"slug":"clinica-veterinaria-sant-antoni"`)
	assert.Contains(t, string(msg.Value), `"sunday":null`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "slug", msg.Headers[0].Key)
	assert.Equal(t, []byte(clinic.Slug), msg.Headers[0].Value)
	assert.Equal(t, "barrio", msg.Headers[1].Key)
	assert.Equal(t, []byte("Sant Antoni"), msg.Headers[1].Value)
	assert.Equal(t, "published_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2025-03-14T09:30:00Z"), msg.Headers[2].Value)

	var roundtrip domain.Clinic
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))
	assert.Equal(t, clinic, roundtrip)
}

func TestNewWriter_UsesCatalogConfig(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:       []string{"localhost:9092"},
		KafkaCatalogTopic:  "vet-clinics",
		BatchSize:          25,
		BatchFlushInterval: 250 * time.Millisecond,
	}

	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "vet-clinics", w.writer.Topic)
	assert.Equal(t, 25, w.writer.BatchSize)
	assert.Equal(t, 250*time.Millisecond, w.writer.BatchTimeout)
	assert.Equal(t, 25, w.batchSize)
}

func TestPublishBatch_EmptyIsNoop(t *testing.T) {
	// No broker is listening; an empty batch must not try to reach one.
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaCatalogTopic: "vet-clinics", BatchSize: 10}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.PublishBatch(context.Background(), nil))
}
