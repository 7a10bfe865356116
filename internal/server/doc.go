// Package server exposes the analyzer over HTTP with gin.
//
// Routes:
//   - GET  /             HTML form
//   - POST /predict      HTML result page for the form field "url"
//   - POST /api/analyze  JSON analysis of {"url": ..., "limit": ...}
//   - GET  /health       liveness
//   - GET  /ready        503 until the pretrained artifacts are loaded
//   - GET  /metrics      Prometheus metrics
package server
