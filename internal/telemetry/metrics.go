package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	ChatRequests      metric.Int64Counter
	ChatDuration      metric.Float64Histogram
	TokensUsed        metric.Int64Counter
	DocumentsIngested metric.Int64Counter
	IngestDuration    metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("rag-chat-platform")

	chatRequests, err := meter.Int64Counter(
		"chat.requests.total",
		metric.WithDescription("Total chat pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	chatDuration, err := meter.Float64Histogram(
		"chat.request.duration",
		metric.WithDescription("Chat pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"gemini.tokens.used",
		metric.WithDescription("Total Gemini tokens used"),
	)
	if err != nil {
		return nil, err
	}

	documentsIngested, err := meter.Int64Counter(
		"ingest.documents.total",
		metric.WithDescription("Documents processed by the ingestion pipeline"),
	)
	if err != nil {
		return nil, err
	}

	ingestDuration, err := meter.Float64Histogram(
		"ingest.document.duration",
		metric.WithDescription("Per-document ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ChatRequests:      chatRequests,
		ChatDuration:      chatDuration,
		TokensUsed:        tokensUsed,
		DocumentsIngested: documentsIngested,
		IngestDuration:    ingestDuration,
	}, nil
}

// RecordChatRequest records one pipeline run
func (m *Metrics) RecordChatRequest(status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("chat.status", status),
	}

	m.ChatRequests.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.ChatDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordTokensUsed records Gemini token usage
func (m *Metrics) RecordTokensUsed(tokens int64, model string) {
	attrs := []attribute.KeyValue{
		attribute.String("gemini.model", model),
	}

	m.TokensUsed.Add(context.Background(), tokens, metric.WithAttributes(attrs...))
}

// RecordDocumentIngested records one ingestion pipeline run
func (m *Metrics) RecordDocumentIngested(status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("ingest.status", status),
	}

	m.DocumentsIngested.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.IngestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}
