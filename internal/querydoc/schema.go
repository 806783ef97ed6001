package querydoc

// querySchema describes a well-formed query document. The engine itself
// accepts anything keyed; this schema backs stricter checks at the CLI
// boundary (unknown operators, wrong operand types, bad patterns).
// Unknown '$' keys at document level stay allowed.
const querySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "$and": {"type": "array", "items": {"$ref": "#"}},
    "$or":  {"type": "array", "items": {"$ref": "#"}},
    "$not": {"$ref": "#"}
  },
  "patternProperties": {
    "^([^$]|$)": {"$ref": "#/definitions/condition"}
  },
  "definitions": {
    "condition": {
      "propertyNames": {
        "anyOf": [
          {"pattern": "^([^$]|$)"},
          {"enum": ["$eq", "$ne", "$gt", "$gte", "$lt", "$lte", "$in", "$nin",
                    "$regex", "$exists", "$type", "$size", "$contains", "$not"]}
        ]
      },
      "properties": {
        "$gt":     {"type": ["number", "string"]},
        "$gte":    {"type": ["number", "string"]},
        "$lt":     {"type": ["number", "string"]},
        "$lte":    {"type": ["number", "string"]},
        "$in":     {"type": "array"},
        "$nin":    {"type": "array"},
        "$regex":  {"type": "string", "format": "regex"},
        "$exists": {"type": "boolean"},
        "$type":   {"enum": ["string", "number", "boolean", "object", "array", "null", "undefined"]},
        "$size":   {"type": "integer", "minimum": 0},
        "$not":    {"$ref": "#/definitions/condition"}
      }
    }
  }
}`
