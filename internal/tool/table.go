package tool

// transitions is the dispatch table. A (tool, gesture) pair that is not listed
// does nothing.
var transitions = map[key]transition{
	{BBox, Press}:   beginSpan,
	{BBox, Move}:    trackSpan,
	{BBox, Release}: releaseBBox,
	{BBox, Cancel}:  discard,

	{OBB, Press}:   beginSpan,
	{OBB, Move}:    trackSpan,
	{OBB, Release}: releaseOBB,
	{OBB, Cancel}:  discard,

	{Range, Press}:   beginSpan,
	{Range, Move}:    trackSpan,
	{Range, Release}: releaseRange,
	{Range, Cancel}:  discard,

	{Polygon, Press}:        pressPolygon,
	{Polygon, Move}:         trackSpan,
	{Polygon, Close}:        closePolygon,
	{Polygon, Cancel}:       discard,
	{Polygon, DeleteVertex}: undoVertex,

	{Point, Press}:    placePoint,
	{Landmark, Press}: placeLandmark,

	{Keypoints, Press}:  pressKeypoint,
	{Keypoints, Move}:   trackSpan,
	{Keypoints, Close}:  closeKeypoints,
	{Keypoints, Cancel}: discard,

	{Select, Press}:        pressSelect,
	{Select, Move}:         moveSelect,
	{Select, Release}:      releaseSelect,
	{Select, Cancel}:       cancelSelect,
	{Select, Delete}:       deleteSelected,
	{Select, InsertVertex}: insertVertex,
	{Select, DeleteVertex}: deleteVertex,
}
