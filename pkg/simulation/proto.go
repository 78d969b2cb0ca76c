package simulation

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/geometry"
	"google.golang.org/protobuf/types/known/structpb"
)

// Actor messages are protobuf well-known types:
//
//	*structpb.Struct          settings (Tell) and rendered blocks / snapshots (Ask responses)
//	*wrapperspb.UInt32Value   render request, value is the number of frames
//	*emptypb.Empty            snapshot request

const (
	fieldDamping    = "damping"
	fieldCohesion   = "cohesionGain"
	fieldSeparation = "separationGain"
	fieldAlignment  = "alignmentGain"
	fieldX          = "x"
	fieldY          = "y"
	fieldBoids      = "boids"
	fieldPos        = "pos"
	fieldVel        = "vel"
)

// SettingsToProto converts the per-block coefficients into a message.
func SettingsToProto(s behavior.Settings) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldDamping:    structpb.NewNumberValue(s.Damping),
		fieldCohesion:   structpb.NewNumberValue(s.Cohesion),
		fieldSeparation: structpb.NewNumberValue(s.Separation),
		fieldAlignment:  structpb.NewNumberValue(s.Alignment),
	}}
}

// SettingsFromProto reads back a message built by SettingsToProto.
// Every field is required.
func SettingsFromProto(p *structpb.Struct) (behavior.Settings, error) {
	var s behavior.Settings
	for name, dst := range map[string]*float64{
		fieldDamping:    &s.Damping,
		fieldCohesion:   &s.Cohesion,
		fieldSeparation: &s.Separation,
		fieldAlignment:  &s.Alignment,
	} {
		v, err := number(p, name)
		if err != nil {
			return behavior.Settings{}, err
		}
		*dst = v
	}
	return s, nil
}

func number(p *structpb.Struct, name string) (float64, error) {
	v, ok := p.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("missing field %q", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("field %q is not a number", name)
	}
	return n.NumberValue, nil
}

func numberList(xs []float64) *structpb.Value {
	values := make([]*structpb.Value, len(xs))
	for i, x := range xs {
		values[i] = structpb.NewNumberValue(x)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// readNumbers copies a list field into dst; the lengths must match.
func readNumbers(p *structpb.Struct, name string, dst []float64) error {
	list := p.GetFields()[name].GetListValue()
	if list == nil {
		return fmt.Errorf("missing list field %q", name)
	}
	if len(list.GetValues()) != len(dst) {
		return fmt.Errorf("%w: field %q has %d values, want %d", ErrBufferMismatch, name, len(list.GetValues()), len(dst))
	}
	for i, v := range list.GetValues() {
		dst[i] = v.GetNumberValue()
	}
	return nil
}

// BlockToProto packs a rendered block of centroids.
func BlockToProto(xs, ys []float64) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldX: numberList(xs),
		fieldY: numberList(ys),
	}}
}

// BlockFromProto unpacks a rendered block into xs and ys.
func BlockFromProto(p *structpb.Struct, xs, ys []float64) error {
	if err := readNumbers(p, fieldX, xs); err != nil {
		return err
	}
	return readNumbers(p, fieldY, ys)
}

func vectorToProto(v geometry.Vector3D) *structpb.Value {
	return numberList([]float64{v.X, v.Y, v.Z})
}

func vectorFromProto(p *structpb.Struct, name string) (geometry.Vector3D, error) {
	var c [3]float64
	if err := readNumbers(p, name, c[:]); err != nil {
		return geometry.Vector3D{}, err
	}
	return geometry.NewVector(c[0], c[1], c[2]), nil
}

// SnapshotToProto packs the state of every boid of a flock.
func SnapshotToProto(boids []behavior.Boid) *structpb.Struct {
	values := make([]*structpb.Value, len(boids))
	for i, b := range boids {
		values[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			fieldPos: vectorToProto(b.Pos),
			fieldVel: vectorToProto(b.Vel),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldBoids: structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

// SnapshotFromProto unpacks a message built by SnapshotToProto.
func SnapshotFromProto(p *structpb.Struct) ([]behavior.Boid, error) {
	list := p.GetFields()[fieldBoids].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("missing list field %q", fieldBoids)
	}
	boids := make([]behavior.Boid, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("boid %d is not a struct", i)
		}
		var err error
		if boids[i].Pos, err = vectorFromProto(s, fieldPos); err != nil {
			return nil, fmt.Errorf("boid %d: %w", i, err)
		}
		if boids[i].Vel, err = vectorFromProto(s, fieldVel); err != nil {
			return nil, fmt.Errorf("boid %d: %w", i, err)
		}
	}
	return boids, nil
}
