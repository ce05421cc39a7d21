// Package diagram holds light helpers around Mermaid text. It never parses
// the grammar: rendering and validation belong to mermaid.js in the browser.
package diagram
