package sheetserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote sheet service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
//
// Precondition: cc must be non-nil.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Evaluation is the result of Client.Evaluate.
type Evaluation struct {
	Total   int
	Display string
}

// Unenforced is one condition reported by Client.Unenforced.
type Unenforced struct {
	Resource string
	Field    string
	Text     string
	Known    bool
}

func (c *Client) call(ctx context.Context, method string, req map[string]interface{}) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate asks for the modifier called name. target may be empty.
func (c *Client) Evaluate(ctx context.Context, characterID, name, target string) (Evaluation, error) {
	req := map[string]interface{}{"character_id": characterID, "name": name}
	if target != "" {
		req["target"] = target
	}
	out, err := c.call(ctx, MethodEvaluate, req)
	if err != nil {
		return Evaluation{}, err
	}
	fields := out.GetFields()
	return Evaluation{
		Total:   int(fields["total"].GetNumberValue()),
		Display: fields["display"].GetStringValue(),
	}, nil
}

// Describe renders the description of one of the character's resources.
func (c *Client) Describe(ctx context.Context, characterID, resource string) (string, error) {
	out, err := c.call(ctx, MethodDescribe, map[string]interface{}{
		"character_id": characterID,
		"resource":     resource,
	})
	if err != nil {
		return "", err
	}
	return out.GetFields()["text"].GetStringValue(), nil
}

// ListResources lists known resource references. An empty resourceType
// lists every resource.
func (c *Client) ListResources(ctx context.Context, resourceType string) ([]string, error) {
	req := map[string]interface{}{}
	if resourceType != "" {
		req["type"] = resourceType
	}
	out, err := c.call(ctx, MethodListResources, req)
	if err != nil {
		return nil, err
	}
	var refs []string
	for _, v := range out.GetFields()["refs"].GetListValue().GetValues() {
		refs = append(refs, v.GetStringValue())
	}
	return refs, nil
}

// Unenforced lists the character's conditions that need manual adjudication.
func (c *Client) Unenforced(ctx context.Context, characterID string) ([]Unenforced, error) {
	out, err := c.call(ctx, MethodUnenforced, map[string]interface{}{"character_id": characterID})
	if err != nil {
		return nil, err
	}
	var conds []Unenforced
	for _, v := range out.GetFields()["conditions"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		conds = append(conds, Unenforced{
			Resource: f["resource"].GetStringValue(),
			Field:    f["field"].GetStringValue(),
			Text:     f["text"].GetStringValue(),
			Known:    f["known"].GetBoolValue(),
		})
	}
	return conds, nil
}
