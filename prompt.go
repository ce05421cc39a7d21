package mermaidviz

// Instruction is the fixed prompt prepended to every conversion.
const Instruction = "Convert the following text into a proper Mermaid diagram syntax. Only return the Mermaid code without any explanation:"

// BuildPrompt returns the query sent to the generator for text.
func BuildPrompt(text string) string {
	return Instruction + "\n\n" + text
}
