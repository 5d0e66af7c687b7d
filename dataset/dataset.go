// Package dataset is the data-loading boundary of the core: it normalizes the
// loosely-shaped frame records produced by capture tooling (several field-name
// spellings are in circulation) into the one explicit waypoint schema the core
// consumes, and round-trips calibration correspondence sets as plain
// structured records independent of storage medium.
package dataset

import (
	"encoding/json"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/sitewalk/poselink/calibration"
	"github.com/sitewalk/poselink/pathcond"
	"github.com/sitewalk/poselink/spatialmath"
)

// Accepted alias spellings, all compared lowercase.
var (
	positionAliases = []string{"pos", "position", "coordinates", "point"}
	imageAliases    = []string{"imageref", "image_ref", "image", "img"}
)

// ParseFrames decodes an ordered JSON array of frame records into waypoints.
// Each record carries a 3D position under one of the position aliases, as
// either an {x,y,z} object or an [x,y,z] array, plus an optional image
// reference and optional yaw/pitch. Malformed frames are validation errors
// naming the frame index, never silently defaulted.
func ParseFrames(data []byte) ([]pathcond.Waypoint, error) {
	var rawFrames []json.RawMessage
	if err := json.Unmarshal(data, &rawFrames); err != nil {
		return nil, errors.Wrap(err, "dataset is not a JSON array")
	}
	waypoints := make([]pathcond.Waypoint, 0, len(rawFrames))
	for i, raw := range rawFrames {
		wp, err := parseFrame(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

func parseFrame(raw json.RawMessage) (pathcond.Waypoint, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return pathcond.Waypoint{}, errors.Wrap(err, "frame is not an object")
	}
	lowered := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		lowered[strings.ToLower(k)] = v
	}

	var wp pathcond.Waypoint
	posRaw, ok := lookupAlias(lowered, positionAliases)
	if !ok {
		return pathcond.Waypoint{}, errors.Errorf("no position field (any of %v)", positionAliases)
	}
	pos, err := parsePoint(posRaw)
	if err != nil {
		return pathcond.Waypoint{}, err
	}
	if !spatialmath.VectorIsFinite(pos) {
		return pathcond.Waypoint{}, errors.Errorf("position %v is not finite", pos)
	}
	wp.Position = pos

	if imgRaw, ok := lookupAlias(lowered, imageAliases); ok {
		if err := json.Unmarshal(imgRaw, &wp.ImageRef); err != nil {
			return pathcond.Waypoint{}, errors.Wrap(err, "image reference is not a string")
		}
	}
	if yawRaw, ok := lowered["yaw"]; ok {
		if err := json.Unmarshal(yawRaw, &wp.Yaw); err != nil {
			return pathcond.Waypoint{}, errors.Wrap(err, "yaw is not a number")
		}
	}
	if pitchRaw, ok := lowered["pitch"]; ok {
		if err := json.Unmarshal(pitchRaw, &wp.Pitch); err != nil {
			return pathcond.Waypoint{}, errors.Wrap(err, "pitch is not a number")
		}
	}
	return wp, nil
}

func lookupAlias(fields map[string]json.RawMessage, aliases []string) (json.RawMessage, bool) {
	for _, alias := range aliases {
		if v, ok := fields[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

// parsePoint accepts either an [x, y, z] array or an object with x/y/z fields
// in any letter case.
func parsePoint(raw json.RawMessage) (r3.Vector, error) {
	var triple []float64
	if err := json.Unmarshal(raw, &triple); err == nil {
		if len(triple) != 3 {
			return r3.Vector{}, errors.Errorf("position array has %d elements, want 3", len(triple))
		}
		return r3.Vector{X: triple[0], Y: triple[1], Z: triple[2]}, nil
	}
	var fields map[string]float64
	if err := json.Unmarshal(raw, &fields); err != nil {
		return r3.Vector{}, errors.Wrap(err, "position is neither an array nor an object")
	}
	var v r3.Vector
	var haveX, haveY, haveZ bool
	for k, val := range fields {
		switch strings.ToLower(k) {
		case "x":
			v.X, haveX = val, true
		case "y":
			v.Y, haveY = val, true
		case "z":
			v.Z, haveZ = val, true
		}
	}
	if !haveX || !haveY || !haveZ {
		return r3.Vector{}, errors.New("position object is missing an x, y or z field")
	}
	return v, nil
}

// pairRecord is the persisted shape of one correspondence pair: source and
// target point triples in meters.
type pairRecord struct {
	Source [3]float64 `json:"source"`
	Target [3]float64 `json:"target"`
}

// ParseCorrespondences decodes a persisted calibration set, preserving order.
func ParseCorrespondences(data []byte) (calibration.Set, error) {
	var records []pairRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "calibration data is not an array of pair records")
	}
	set := make(calibration.Set, len(records))
	for i, rec := range records {
		set[i] = calibration.CorrespondencePair{
			Source: r3.Vector{X: rec.Source[0], Y: rec.Source[1], Z: rec.Source[2]},
			Target: r3.Vector{X: rec.Target[0], Y: rec.Target[1], Z: rec.Target[2]},
		}
	}
	return set, nil
}

// MarshalCorrespondences encodes a calibration set for persistence, preserving
// order for UI round-trips.
func MarshalCorrespondences(set calibration.Set) ([]byte, error) {
	records := make([]pairRecord, len(set))
	for i, pair := range set {
		records[i] = pairRecord{
			Source: [3]float64{pair.Source.X, pair.Source.Y, pair.Source.Z},
			Target: [3]float64{pair.Target.X, pair.Target.Y, pair.Target.Z},
		}
	}
	return json.Marshal(records)
}
