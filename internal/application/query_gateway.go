package application

import "fmt"

// QueryMapper turns a projection's current state plus request params
// into the response shape a caller expects. It contains no business
// logic of its own — only field selection/renaming.
type QueryMapper func(state map[string]any, params map[string]any) map[string]any

type queryRegistration struct {
	projection *ProjectionHandler
	mapper     QueryMapper
}

// QueryResult is always returned by Handle — the gateway never returns
// a Go error, matching the command gateway's "never throws" contract.
type QueryResult struct {
	Success bool
	Data    map[string]any
	Error   string
}

// QueryGateway is the single read-side entry point: it exposes
// projection state to callers without ever touching aggregates or the
// event store directly.
type QueryGateway struct {
	registrations map[string]queryRegistration
}

func NewQueryGateway() *QueryGateway {
	return &QueryGateway{registrations: make(map[string]queryRegistration)}
}

func (g *QueryGateway) Register(queryType string, projection *ProjectionHandler, mapper QueryMapper) {
	g.registrations[queryType] = queryRegistration{projection: projection, mapper: mapper}
}

func (g *QueryGateway) Handle(request map[string]any) QueryResult {
	queryType, ok := request["query_type"].(string)
	if !ok || queryType == "" {
		return QueryResult{Error: "Missing required field: query_type"}
	}

	reg, ok := g.registrations[queryType]
	if !ok {
		return QueryResult{Error: fmt.Sprintf("Unknown query type: %s", queryType)}
	}

	params, _ := request["params"].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}

	data := reg.mapper(reg.projection.State(), params)
	return QueryResult{Success: true, Data: data}
}
