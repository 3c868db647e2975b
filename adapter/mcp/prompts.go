package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for front-desk workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("book_session").
		Description("Walk through finding a slot and booking a client, including recurring sessions.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Book a session",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me book a therapy session. Please:

1. Read solace://services and ask which service the client needs
2. Ask for the client id, the preferred provider and a preferred day
3. Call slots.resolve for that day and offer the free starts
4. Once a start is chosen, call booking.create

If the client wants a standing appointment, pass an RRULE such as
FREQ=WEEKLY;COUNT=8. When some instances of a series are rejected, list
the skipped dates and offer alternatives for each with slots.resolve.

If booking.create reports the slot is taken, offer the nearest available
starts from the error before trying again. Finish by reading back the
confirmation code.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("weekly_caseload").
		Description("Review the coming two weeks: pending approvals, unconfirmed sessions and gaps.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Weekly caseload review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Review the practice caseload using solace://appointments/upcoming.

Summarize:
- Pending appointments that still need booking.approve
- Scheduled appointments the client has not confirmed yet
- Days where a provider has no bookings at all

Do not cancel or move anything without asking me first.`,
						},
					},
				},
			}, nil
		})

	return nil
}
