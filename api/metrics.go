package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName          = "dashboard-api/api"
	requestSpanName     = "dashboard.request"
	requestEventName    = "dashboard.request.metrics"
	requestEventDomain  = "dashboard-api"
	observabilityEvent  = "observability.event"
	metricsContextKey   = "request_metrics"
	attrPrefix          = "dashboard.request."
	unsetItemsReturned  = -1
	severityInfoNumber  = 9
	severityWarnNumber  = 13
	severityErrorNumber = 17
)

type requestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	method         string
	route          string
	start          time.Time
	storeDuration  time.Duration
	storeCalls     int
	encodeDuration time.Duration
	itemsReturned  int
	errorStage     string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		))
	return &requestMetrics{
		logger:        logger,
		span:          span,
		method:        method,
		route:         route,
		start:         time.Now(),
		itemsReturned: unsetItemsReturned,
	}, spanCtx
}

// ObserveStore accumulates time spent in storage calls for the request.
func (m *requestMetrics) ObserveStore(duration time.Duration) {
	if m == nil || duration <= 0 {
		return
	}
	m.storeDuration += duration
	m.storeCalls++
}

func (m *requestMetrics) ObserveEncode(duration time.Duration) {
	if m == nil || duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *requestMetrics) SetItemsReturned(count int) {
	if m == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	m.itemsReturned = count
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) attributes(status int, err error) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", m.method),
		attribute.String("http.route", m.route),
		attribute.Int("http.status_code", status),
		attribute.Float64(attrPrefix+"total_ms", durationToMillis(time.Since(m.start))),
	}
	if m.storeCalls > 0 {
		attrs = append(attrs,
			attribute.Float64(attrPrefix+"store_ms", durationToMillis(m.storeDuration)),
			attribute.Int(attrPrefix+"store_calls", m.storeCalls))
	}
	if m.encodeDuration > 0 {
		attrs = append(attrs, attribute.Float64(attrPrefix+"encode_ms", durationToMillis(m.encodeDuration)))
	}
	if m.itemsReturned != unsetItemsReturned {
		attrs = append(attrs, attribute.Int(attrPrefix+"items_returned", m.itemsReturned))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String(attrPrefix+"error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}
	return attrs
}

// Log ends the request span and emits one structured observability event
// carrying the same attributes.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	attrs := m.attributes(status, err)
	severityText, severityNumber := severityForStatus(status, err)

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", requestEventName),
			attribute.String("event.domain", requestEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		}, attrs...)
		m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))
		switch {
		case err != nil:
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"attributes":      attrMap,
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}

	entry := m.logger.WithFields(fields)
	switch severityNumber {
	case severityErrorNumber:
		entry.Error(observabilityEvent)
	case severityWarnNumber:
		entry.Warn(observabilityEvent)
	default:
		entry.Info(observabilityEvent)
	}
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case status >= http.StatusInternalServerError:
		return "ERROR", severityErrorNumber
	case status >= http.StatusBadRequest:
		return "WARN", severityWarnNumber
	case status == 0 && err != nil:
		return "ERROR", severityErrorNumber
	default:
		return "INFO", severityInfoNumber
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

// observeRequests starts a span per request and logs its outcome. Errors are
// rendered here so the logged status matches what the client received.
func observeRequests(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			m, ctx := newRequestMetrics(req.Context(), logger, req.Method, c.Path())
			c.SetRequest(req.WithContext(ctx))
			c.Set(metricsContextKey, m)

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			m.Log(c.Response().Status, err)
			return nil
		}
	}
}

func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsContextKey).(*requestMetrics)
	return m
}

// timeStore returns a func that records the elapsed storage time when called.
func timeStore(c echo.Context) func() {
	m := metricsFrom(c)
	start := time.Now()
	return func() { m.ObserveStore(time.Since(start)) }
}
