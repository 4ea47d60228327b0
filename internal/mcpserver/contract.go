package mcpserver

// FlowFormatContract describes the flow document returned by get_flow and
// accepted by import_flow.
const FlowFormatContract = `# PlugConversaPro Flow Document Format

A flow document describes one automation flow and its steps. Steps refer to
each other by key, never by database id, so a document can be imported into
any tenant.

## Structure

` + "```" + `yaml
version: 1                 # REQUIRED – always 1
name: Welcome              # REQUIRED – flow name, 1-200 characters
steps:
  - key: greet             # REQUIRED – unique within the document
    title: Greeting        # OPTIONAL
    type: message          # OPTIONAL – message (default), condition or wait
    message: Olá! Tudo bem?
    next: ask              # OPTIONAL – key of the following step
  - key: ask
    type: condition
    message: Já é cliente?
    on_true: thanks        # OPTIONAL – condition steps only
    on_false: offer
  - key: thanks
    message: Obrigado!
  - key: offer
    message: Conheça nossos planos.
` + "```" + `

## Rules

1. **Keys are unique.** Two steps with the same key reject the whole document.
2. **References must resolve.** ` + "`" + `next` + "`" + `, ` + "`" + `on_true` + "`" + ` and ` + "`" + `on_false` + "`" + ` must name a key of the same document.
   A step may reference itself; cycles are allowed.
3. **Order is kept.** Steps are stored in document order; the first step is the entry point.
4. **JSON is accepted** with the same field names.
5. **Imports never merge.** Importing always creates a new flow; existing flows are untouched.
`
