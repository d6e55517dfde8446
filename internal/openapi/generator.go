package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/hackfolio/hackfolio/internal/model"
)

const (
	tagAuth    = "auth"
	tagRooms   = "thm-rooms"
	tagMachine = "htb-machines"
	tagStats   = "stats"
	tagLogs    = "logs"
	tagSystem  = "system"
)

// Generate builds the OpenAPI 3.1 document for the hackfolio HTTP API.
func Generate(baseURL, version string) *openapi3.T {
	if version == "" {
		version = "dev"
	}
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "hackfolio API",
			Description: "Portfolio catalog of Hack The Box machines and TryHackMe rooms, with admin session auth.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["adminSession"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:        "apiKey",
			In:          "cookie",
			Name:        "admin_session",
			Description: "Session cookie set by POST /api/admin/auth.",
		},
	}

	schemas := doc.Components.Schemas
	schemas["ErrorResponse"] = SchemaOf(model.ErrorResponse{})
	schemas["Room"] = SchemaOf(model.Room{})
	schemas["Machine"] = SchemaOf(model.Machine{})
	schemas["HTBStats"] = SchemaOf(model.HTBStats{})
	schemas["THMStats"] = SchemaOf(model.THMStats{})
	schemas["AuditLogEntry"] = SchemaOf(model.AuditLogEntry{})
	schemas["AdminSummary"] = SchemaOf(model.AdminSummary{})
	schemas["LoginRequest"] = objectSchema(map[string]string{"username": "string", "password": "string"}, "username", "password")
	schemas["SetupRequest"] = objectSchema(map[string]string{"username": "string", "password": "string", "setupKey": "string"}, "username", "password", "setupKey")

	doc.Paths = openapi3.NewPaths()
	addAuthPaths(doc)
	addRoomPaths(doc)
	addMachinePaths(doc)
	addStatsPaths(doc)
	addSystemPaths(doc)
	return doc
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addAuthPaths(doc *openapi3.T) {
	loginOK := objectRef(openapi3.Schemas{
		"success": boolSchema(),
		"user":    openapi3.NewSchemaRef("#/components/schemas/AdminSummary", nil),
	})
	login := operation(tagAuth, "Log in as admin", "admin_login",
		newResponses("200", "Logged in; the admin_session cookie is set", loginOK, "400", "401", "429", "500", "503"))
	login.RequestBody = jsonBody("Admin credentials", "#/components/schemas/LoginRequest")

	session := operation(tagAuth, "Check the admin session", "admin_session",
		newResponses("200", "Session state", objectRef(openapi3.Schemas{"authenticated": boolSchema()})))

	logout := operation(tagAuth, "Log out", "admin_logout",
		newResponses("200", "Logged out; the cookie is cleared", successMessage(), "500"))

	doc.Paths.Set("/api/admin/auth", &openapi3.PathItem{Post: login, Get: session, Delete: logout})

	setup := operation(tagAuth, "Create the first admin", "admin_setup",
		newResponses("200", "Admin created", objectRef(openapi3.Schemas{
			"success": boolSchema(),
			"message": stringSchema(),
			"user":    objectRef(openapi3.Schemas{"username": stringSchema()}),
		}), "400", "401", "409", "500", "503"))
	setup.RequestBody = jsonBody("Setup key and credentials", "#/components/schemas/SetupRequest")

	status := operation(tagAuth, "Report whether an admin exists", "admin_setup_status",
		newResponses("200", "Setup status", objectRef(openapi3.Schemas{
			"hasAdminUser": boolSchema(),
			"adminCount":   integerSchema(),
		}), "500", "503"))

	doc.Paths.Set("/api/admin/setup", &openapi3.PathItem{Post: setup, Get: status})

	logs := operation(tagLogs, "List audit log entries", "list_audit_logs",
		newResponses("200", "Audit entries, newest first", listSchema("#/components/schemas/AuditLogEntry"), "401", "500", "503"))
	logs.Parameters = openapi3.Parameters{
		queryParam("action", "Only entries with this action.", openapi3.NewStringSchema()),
		queryParam("limit", "Maximum entries to return (1-500, default 50).", openapi3.NewIntegerSchema()),
		queryParam("offset", "Entries to skip.", openapi3.NewIntegerSchema()),
	}
	logs.Security = adminOnly()
	doc.Paths.Set("/api/admin/logs", &openapi3.PathItem{Get: logs})
}

func addRoomPaths(doc *openapi3.T) {
	ref := "#/components/schemas/Room"
	list := operation(tagRooms, "List TryHackMe rooms", "list_rooms",
		newResponses("200", "Rooms, or {room} when slug is given", objectRef(openapi3.Schemas{
			"rooms": arrayOf(ref),
			"room":  openapi3.NewSchemaRef(ref, nil),
		}), "404", "500", "503"))
	list.Parameters = append(filterParams(),
		queryParam("slug", "Return the single room with this slug.", openapi3.NewStringSchema()))

	doc.Paths.Set("/api/admin/thm-rooms", &openapi3.PathItem{
		Get:    list,
		Post:   createOp(tagRooms, "Create a room", "create_room", "room", ref),
		Put:    updateOp(tagRooms, "Update a room", "update_room", "room", ref),
		Delete: deleteOp(tagRooms, "Delete a room", "delete_room"),
	})
}

func addMachinePaths(doc *openapi3.T) {
	ref := "#/components/schemas/Machine"
	list := operation(tagMachine, "List Hack The Box machines", "list_machines",
		newResponses("200", "Machines, or {machine} when id is given", objectRef(openapi3.Schemas{
			"machines": arrayOf(ref),
			"machine":  openapi3.NewSchemaRef(ref, nil),
		}), "404", "500", "503"))
	list.Parameters = append(filterParams(),
		queryParam("id", "Return the single machine with this ID.", openapi3.NewStringSchema()))

	doc.Paths.Set("/api/admin/htb-machines", &openapi3.PathItem{
		Get:    list,
		Post:   createOp(tagMachine, "Create a machine", "create_machine", "machine", ref),
		Put:    updateOp(tagMachine, "Update a machine", "update_machine", "machine", ref),
		Delete: deleteOp(tagMachine, "Delete a machine", "delete_machine"),
	})
}

func addStatsPaths(doc *openapi3.T) {
	for _, p := range []struct {
		path, platform, ref string
	}{
		{"/api/admin/htb-stats", "htb", "#/components/schemas/HTBStats"},
		{"/api/admin/thm-stats", "thm", "#/components/schemas/THMStats"},
	} {
		get := operation(tagStats, "Get "+p.platform+" stats", "get_"+p.platform+"_stats",
			newResponses("200", "Current stats", openapi3.NewSchemaRef(p.ref, nil), "500", "503"))
		save := operation(tagStats, "Save "+p.platform+" stats", "save_"+p.platform+"_stats",
			newResponses("200", "Saved stats", objectRef(openapi3.Schemas{
				"success": boolSchema(),
				"stats":   openapi3.NewSchemaRef(p.ref, nil),
			}), "400", "401", "500", "503"))
		save.RequestBody = jsonBody("Fields to change; omitted fields keep their values", p.ref)
		save.Security = adminOnly()
		doc.Paths.Set(p.path, &openapi3.PathItem{Get: get, Post: save})
	}
}

func addSystemPaths(doc *openapi3.T) {
	probe := objectRef(openapi3.Schemas{"status": stringSchema()})
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: operation(tagSystem, "Liveness probe", "healthz", newResponses("200", "Alive", probe)),
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: operation(tagSystem, "Readiness probe", "readyz", newResponses("200", "Database reachable", probe, "503")),
	})

	xmlDesc := "Sitemap of static pages and write-ups"
	sitemapResponses := openapi3.NewResponses()
	sitemapResponses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &xmlDesc,
			Content: openapi3.Content{
				"application/xml": &openapi3.MediaType{Schema: &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}},
			},
		},
	})
	doc.Paths.Set("/sitemap.xml", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags: []string{tagSystem}, Summary: "Sitemap", OperationID: "sitemap", Responses: sitemapResponses,
		},
	})
}

// ─── Operation Builders ─────────────────────────────────────────────────────

func operation(tag, summary, id string, responses *openapi3.Responses) *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		OperationID: id,
		Responses:   responses,
	}
}

func createOp(tag, summary, id, key, ref string) *openapi3.Operation {
	op := operation(tag, summary, id, newResponses("201", "Created", objectRef(openapi3.Schemas{
		"success": boolSchema(),
		key:       openapi3.NewSchemaRef(ref, nil),
	}), "400", "401", "409", "500", "503"))
	op.RequestBody = jsonBody("Record to create", ref)
	op.Security = adminOnly()
	return op
}

func updateOp(tag, summary, id, key, ref string) *openapi3.Operation {
	op := operation(tag, summary, id, newResponses("200", "Updated", objectRef(openapi3.Schemas{
		"success": boolSchema(),
		key:       openapi3.NewSchemaRef(ref, nil),
	}), "400", "401", "404", "409", "500", "503"))
	op.Parameters = openapi3.Parameters{
		queryParam("id", "Record ID; may be given as \"id\" in the body instead.", openapi3.NewStringSchema()),
	}
	op.RequestBody = jsonBody("Fields to change; omitted fields keep their values", ref)
	op.Security = adminOnly()
	return op
}

func deleteOp(tag, summary, id string) *openapi3.Operation {
	op := operation(tag, summary, id, newResponses("200", "Deleted", successMessage(), "400", "401", "404", "500", "503"))
	op.Parameters = openapi3.Parameters{
		queryParam("id", "Record ID.", openapi3.NewStringSchema()),
	}
	op.Security = adminOnly()
	return op
}

func filterParams() openapi3.Parameters {
	return openapi3.Parameters{
		queryParam("difficulty", "Easy, Medium, Hard or Insane.", openapi3.NewStringSchema()),
		queryParam("status", "Completed, In Progress or Planned.", openapi3.NewStringSchema()),
		queryParam("q", "Case-insensitive search over names and tags.", openapi3.NewStringSchema()),
	}
}

func queryParam(name, desc string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).WithDescription(desc).WithSchema(schema),
	}
}

func jsonBody(desc, ref string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: desc,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(ref, nil)),
		},
	}
}

func adminOnly() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{{"adminSession": {}}}
}

var errorDescriptions = map[string]string{
	"400": "Bad request",
	"401": "Unauthorized",
	"404": "Not found",
	"409": "Conflict",
	"429": "Too many failed attempts",
	"500": "Internal server error",
	"503": "Service unavailable",
}

// newResponses builds a success response plus the listed error responses,
// all sharing the ErrorResponse schema.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef, errorCodes ...string) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for _, code := range errorCodes {
		desc := errorDescriptions[code]
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}

// ─── Schema Helpers ─────────────────────────────────────────────────────────

func objectRef(props openapi3.Schemas) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{Type: &openapi3.Types{"object"}, Properties: props},
	}
}

func objectSchema(fields map[string]string, required ...string) *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	for name, typ := range fields {
		props[name] = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{typ}}}
	}
	ref := objectRef(props)
	ref.Value.Required = required
	return ref
}

func arrayOf(ref string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: openapi3.NewSchemaRef(ref, nil)},
	}
}

func listSchema(itemRef string) *openapi3.SchemaRef {
	return objectRef(openapi3.Schemas{
		"resource": arrayOf(itemRef),
		"meta":     metaSchema(),
	})
}

func successMessage() *openapi3.SchemaRef {
	return objectRef(openapi3.Schemas{"success": boolSchema(), "message": stringSchema()})
}

func boolSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()}
}

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}
}

func integerSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: openapi3.NewIntegerSchema()}
}

// metaSchema returns the schema for the "meta" field in list responses.
func metaSchema() *openapi3.SchemaRef {
	return objectRef(openapi3.Schemas{
		"count": &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:        &openapi3.Types{"integer"},
				Format:      "int64",
				Description: "Total number of records matching the query.",
			},
		},
		"limit": &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:        &openapi3.Types{"integer"},
				Format:      "int32",
				Description: "Maximum records returned per page.",
			},
		},
		"offset": &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:        &openapi3.Types{"integer"},
				Format:      "int32",
				Description: "Number of records skipped.",
			},
		},
	})
}
