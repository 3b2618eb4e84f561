package mcpserver

// NavigationGuide explains to LLM consumers how the hypermedia tools fit
// together.
const NavigationGuide = `# Skulls Navigation Guide

Skulls browses a hypermedia (HAL / HAL-FORMS) API. Every page is a JSON
document whose links are the only way to move on; no URL is ever invented.

## Workflow

1. Call ` + "`current_page`" + ` to see where you are. Right after start-up the API
   root has already been discovered.
2. Call ` + "`list_links`" + ` to see the available relations, their HTTP methods and
   any HAL-FORMS templates with their field rules.
3. Call ` + "`follow_link`" + ` with a ` + "`rel`" + ` from that list (preferred) or an absolute
   ` + "`url`" + `. Pass ` + "`body`" + ` as a JSON object string for POST and PUT.
4. Use ` + "`go_back`" + ` and ` + "`go_forward`" + ` like browser buttons. They re-fetch the
   page without adding history entries.

## Rules

- Only successful GET navigations are recorded in history.
- A DELETE answered with an empty body returns you to the API root.
- Method inference when a link carries none: ` + "`create`" + ` is POST, ` + "`update`" + ` and
  ` + "`edit`" + ` are PUT, ` + "`delete`" + ` is DELETE, everything else is GET.
- Errors are reported as a single message. When the request itself fails
  (network error, non-2xx status, invalid JSON) the previous page stays
  current. When only rendering fails, the new URL is current but the page
  has no rendered content: call ` + "`list_links`" + ` to keep navigating.
`
