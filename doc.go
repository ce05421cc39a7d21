/*
Package mermaidviz is a small server and library behind a browser-based Mermaid editor.

The editor lets a user either hand-write Mermaid syntax and see it rendered live,
or submit free-form text that a remote text-generation service turns into an
equivalent diagram. Rendering happens in the browser with mermaid.js; this package
owns the conversion step: input sanitization, the fixed instruction prompt, an
optional answer cache and the call to a Generator.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"
		"os"

		"github.com/aretw0/mermaidviz"
		"github.com/aretw0/mermaidviz/pkg/adapters/memory"
		"github.com/aretw0/mermaidviz/pkg/adapters/neobase"
	)

	func main() {
		gen := neobase.New(os.Getenv("NEOBASE_API_KEY"))

		conv, err := mermaidviz.New(gen,
			mermaidviz.WithCache(memory.NewCache(), 0),
		)
		if err != nil {
			log.Fatal(err)
		}

		diagram, err := conv.Convert(context.Background(), "Alice sends Bob an invoice; Bob pays it.")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(diagram)
	}

The answer is returned verbatim. Any failure is an error. The HTTP adapter
answers rejected input with 400 and every other failure with a generic 500.
*/
package mermaidviz
