package mcpserver

// BlogFormatContract describes the blog fields and the rules the store
// enforces, for LLM consumers creating or editing blogs.
const BlogFormatContract = `# Inkwell Blog Contract

A blog is a flat record. Tools take and return these fields.

| Field | Type | Notes |
|---|---|---|
| id | integer | Assigned on create (creation time in unix milliseconds). Never changes. |
| title | string | REQUIRED on create. Must contain a non-space character. |
| description | string | REQUIRED on create. Must contain a non-space character. Stored exactly as sent. |
| category | string | Optional. Used by the category filter. |
| author | string | Optional. |
| status | string | ` + "`Draft`" + ` (default) or ` + "`Published`" + `. |
| publishDate | string | Optional, ` + "`YYYY-MM-DD`" + `. Display only. |
| image | string | Optional base64 data URL, ` + "`image/jpeg`" + ` or ` + "`image/png`" + `, at most 1MB decoded. |
| created | integer | Unix milliseconds, set on create. |
| updated | integer | Unix milliseconds, set on every update. |

## Rules

1. **Updates are partial.** Only the fields you pass change. ` + "`id`" + ` and ` + "`created`" + ` cannot be set.
2. **Deletes are soft.** A deleted blog vanishes from every listing and lookup at once and is
   purged for good 7 days later. It cannot be restored through the tools.
3. **Search** matches a case-insensitive substring of the title only.
4. **Filters** take ` + "`All`" + ` (or nothing) to match every category or status.
5. Tool arguments use ` + "`publish_date`" + `; the stored field is ` + "`publishDate`" + `.

## Example

` + "```" + `json
{
  "title": "Launch",
  "description": "We are live.",
  "category": "News",
  "status": "Published",
  "publish_date": "2026-03-01"
}
` + "```" + `
`
