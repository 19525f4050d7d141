package watershed

import (
	"github.com/janelia-flyem/seedseg/dvid"
)

// Context is the read-only view of a running transform handed to criteria and scores.
// Everything a decision may depend on is reachable from here.
type Context struct {
	e *engine
}

// Dims returns the extent of the maps.
func (ctx *Context) Dims() dvid.Dims {
	return ctx.e.dims
}

// Direction returns the growth direction.
func (ctx *Context) Direction() Direction {
	return ctx.e.cfg.Direction
}

// Calibration returns the voxel calibration of the first map.
func (ctx *Context) Calibration() dvid.Calibration {
	return ctx.e.maps[0].Calib
}

// Spot returns the live spot with the given label or nil.
func (ctx *Context) Spot(label uint32) *Spot {
	return ctx.e.spot(label)
}

// LiveSpots returns the number of spots not yet absorbed.
func (ctx *Context) LiveSpots() int {
	return ctx.e.live
}

// NumScales returns the number of energy maps.
func (ctx *Context) NumScales() int {
	return len(ctx.e.maps)
}

// Map returns the energy map used by spots of the given scale.
func (ctx *Context) Map(scale int) *dvid.Volume {
	return ctx.e.scaleMap(scale)
}

// Label returns the current label at a raster index.
func (ctx *Context) Label(i int) uint32 {
	return ctx.e.raster.At(i)
}
