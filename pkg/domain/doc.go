/*
Package domain contains the core types of the Mermaid visualizer.

It defines the conversion request and response envelopes exchanged with the
editor, the user-facing messages every failure collapses to, the sentinel
errors shared by adapters, and the lifecycle events emitted around a
conversion. This package is kept free of I/O and persistence.

# Key Entities

  - ConvertRequest / ConvertResponse: The JSON contract of POST /api/convert.
  - Mode / Tab: The editor view modes (visualize, convert) and preview tabs.
  - ConvertEvent: A structural record of one conversion, used by hooks.
*/
package domain
