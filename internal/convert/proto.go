// Package convert maps domain values to and from the google.protobuf.Struct payloads
// of the ProfileEditor service.
package convert

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/ohmylink/internal/model"
)

// Request keys.
const (
	keyKind     = "kind"
	keyID       = "id"
	keyFields   = "fields"
	keyIDs      = "ids"
	keyGroup    = "group"
	keyPosition = "position"
)

// --- Profile (server -> client) ---

// ToProtoProfile encodes the aggregate as a Struct, using its JSON form.
func ToProtoProfile(p model.Profile) (*structpb.Struct, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("profile to struct: %w", err)
	}
	return s, nil
}

// FromProtoProfile decodes a Struct produced by ToProtoProfile.
func FromProtoProfile(s *structpb.Struct) (model.Profile, error) {
	if s == nil {
		return model.Profile{}, fmt.Errorf("nil profile")
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return model.Profile{}, err
	}
	var p model.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return model.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

// --- Record requests (client -> server) ---

// RecordRequest is the decoded form of every record RPC.
type RecordRequest struct {
	Kind   model.RecordKind
	ID     string
	Fields model.Fields
	IDs    []string
}

func fieldsValue(f model.Fields) (*structpb.Value, error) {
	s, err := structpb.NewStruct(map[string]any(f))
	if err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	return structpb.NewStructValue(s), nil
}

// ToProtoCreateRecord builds {kind, fields}.
func ToProtoCreateRecord(kind model.RecordKind, f model.Fields) (*structpb.Struct, error) {
	fv, err := fieldsValue(f)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyKind:   structpb.NewStringValue(string(kind)),
		keyFields: fv,
	}}, nil
}

// ToProtoUpdateRecord builds {kind, id, fields}.
func ToProtoUpdateRecord(kind model.RecordKind, id string, f model.Fields) (*structpb.Struct, error) {
	s, err := ToProtoCreateRecord(kind, f)
	if err != nil {
		return nil, err
	}
	s.Fields[keyID] = structpb.NewStringValue(id)
	return s, nil
}

// ToProtoDeleteRecord builds {kind, id}.
func ToProtoDeleteRecord(kind model.RecordKind, id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyKind: structpb.NewStringValue(string(kind)),
		keyID:   structpb.NewStringValue(id),
	}}
}

// ToProtoReorderRecords builds {kind, ids}.
func ToProtoReorderRecords(kind model.RecordKind, ids []string) *structpb.Struct {
	vals := make([]*structpb.Value, len(ids))
	for i, id := range ids {
		vals[i] = structpb.NewStringValue(id)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyKind: structpb.NewStringValue(string(kind)),
		keyIDs:  structpb.NewListValue(&structpb.ListValue{Values: vals}),
	}}
}

// FromProtoRecordRequest decodes any record request. Which members must be present
// is up to the handler; kind is always required.
func FromProtoRecordRequest(s *structpb.Struct) (RecordRequest, error) {
	if s == nil {
		return RecordRequest{}, fmt.Errorf("nil request")
	}
	m := s.GetFields()
	req := RecordRequest{Kind: model.RecordKind(m[keyKind].GetStringValue())}
	if !req.Kind.Valid() {
		return RecordRequest{}, fmt.Errorf("invalid kind %q", req.Kind)
	}
	req.ID = m[keyID].GetStringValue()
	if fv, ok := m[keyFields]; ok {
		fs := fv.GetStructValue()
		if fs == nil {
			return RecordRequest{}, fmt.Errorf("fields must be an object")
		}
		req.Fields = model.Fields(fs.AsMap())
	}
	if lv, ok := m[keyIDs]; ok {
		list := lv.GetListValue()
		if list == nil {
			return RecordRequest{}, fmt.Errorf("ids must be a list")
		}
		for i, v := range list.GetValues() {
			id, ok := v.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return RecordRequest{}, fmt.Errorf("ids[%d] must be a string", i)
			}
			req.IDs = append(req.IDs, id.StringValue)
		}
	}
	return req, nil
}

// --- Scalar groups ---

// ToProtoScalarGroup builds {group, fields}.
func ToProtoScalarGroup(g model.ScalarGroup, f model.Fields) (*structpb.Struct, error) {
	fv, err := fieldsValue(f)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyGroup:  structpb.NewStringValue(string(g)),
		keyFields: fv,
	}}, nil
}

// FromProtoScalarGroup decodes {group, fields}.
func FromProtoScalarGroup(s *structpb.Struct) (model.ScalarGroup, model.Fields, error) {
	if s == nil {
		return "", nil, fmt.Errorf("nil request")
	}
	m := s.GetFields()
	g := model.ScalarGroup(m[keyGroup].GetStringValue())
	if !g.Valid() {
		return "", nil, fmt.Errorf("invalid group %q", g)
	}
	fs := m[keyFields].GetStructValue()
	if fs == nil {
		return "", nil, fmt.Errorf("fields must be an object")
	}
	return g, model.Fields(fs.AsMap()), nil
}

// --- Created record (server -> client) ---

// ToProtoCreated builds {id, position}.
func ToProtoCreated(id string, position int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyID:       structpb.NewStringValue(id),
		keyPosition: structpb.NewNumberValue(float64(position)),
	}}
}

// FromProtoCreated decodes {id, position}.
func FromProtoCreated(s *structpb.Struct) (id string, position int, err error) {
	m := s.GetFields()
	id = m[keyID].GetStringValue()
	if id == "" {
		return "", 0, fmt.Errorf("missing id")
	}
	return id, int(m[keyPosition].GetNumberValue()), nil
}
