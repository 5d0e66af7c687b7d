package dataset

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/sitewalk/poselink/calibration"
)

func TestParseFramesAliases(t *testing.T) {
	data := []byte(`[
		{"pos": {"x": 1, "y": 2, "z": 3}, "image": "a.jpg"},
		{"position": [4, 5, 6], "imageRef": "b.jpg", "yaw": 1.5},
		{"coordinates": {"X": 7, "Y": 8, "Z": 9}, "img": "c.jpg", "pitch": -0.2},
		{"point": [10, 11, 12]}
	]`)

	frames, err := ParseFrames(data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 4)

	test.That(t, frames[0].Position, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, frames[0].ImageRef, test.ShouldEqual, "a.jpg")

	test.That(t, frames[1].Position, test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})
	test.That(t, frames[1].ImageRef, test.ShouldEqual, "b.jpg")
	test.That(t, frames[1].Yaw, test.ShouldEqual, 1.5)

	test.That(t, frames[2].Position, test.ShouldResemble, r3.Vector{X: 7, Y: 8, Z: 9})
	test.That(t, frames[2].ImageRef, test.ShouldEqual, "c.jpg")
	test.That(t, frames[2].Pitch, test.ShouldEqual, -0.2)

	test.That(t, frames[3].Position, test.ShouldResemble, r3.Vector{X: 10, Y: 11, Z: 12})
	test.That(t, frames[3].ImageRef, test.ShouldEqual, "")
}

func TestParseFramesMalformed(t *testing.T) {
	// No position field at all.
	_, err := ParseFrames([]byte(`[{"pos": {"x": 1, "y": 2, "z": 3}}, {"image": "b.jpg"}]`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "frame 1")

	// Wrong arity.
	_, err = ParseFrames([]byte(`[{"pos": [1, 2]}]`))
	test.That(t, err, test.ShouldNotBeNil)

	// Missing axis.
	_, err = ParseFrames([]byte(`[{"pos": {"x": 1, "y": 2}}]`))
	test.That(t, err, test.ShouldNotBeNil)

	// Not an array.
	_, err = ParseFrames([]byte(`{"pos": [1, 2, 3]}`))
	test.That(t, err, test.ShouldNotBeNil)

	// Non-finite positions cannot be represented in JSON numbers, but a
	// malformed string where a number belongs must still fail loudly.
	_, err = ParseFrames([]byte(`[{"pos": {"x": "one", "y": 2, "z": 3}}]`))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCorrespondenceRoundTrip(t *testing.T) {
	set := calibration.Set{
		{Source: r3.Vector{}, Target: r3.Vector{X: 19, Y: 35}},
		{Source: r3.Vector{X: 10}, Target: r3.Vector{X: 21, Y: 17}},
		{Source: r3.Vector{Y: 10}, Target: r3.Vector{X: 13, Y: 13}},
	}

	data, err := MarshalCorrespondences(set)
	test.That(t, err, test.ShouldBeNil)

	parsed, err := ParseCorrespondences(data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed, test.ShouldResemble, set)
}

func TestParseCorrespondencesMalformed(t *testing.T) {
	_, err := ParseCorrespondences([]byte(`{"source": [1,2,3]}`))
	test.That(t, err, test.ShouldNotBeNil)
}
