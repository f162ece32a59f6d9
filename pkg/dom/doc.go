// Package dom is the document model the course automation reads and clicks
// through. A Context is one browsing context (a page's main document or a
// nested frame); an Element is a node inside it.
//
// Two backends implement it: pkg/browser adapts live Playwright frames, and
// pkg/dom/snapshot serves saved HTML documents for tests and offline
// inspection. Both report cross-origin and detached frames as errors, which
// the helpers in this package fold into "absent".
package dom
