package shaders

import (
	_ "embed"
)

//go:embed simulate.wgsl
var SimulateTemplate string

//go:embed sort_init.wgsl
var SortInitWGSL string

//go:embed sort_pass.wgsl
var SortPassWGSL string

//go:embed trail.wgsl
var TrailWGSL string

//go:embed billboard.wgsl
var BillboardWGSL string

//go:embed ribbon.wgsl
var RibbonWGSL string
