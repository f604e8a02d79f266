// Package wardrobe holds the release information of the wardrobe module.
package wardrobe

// Version is the release of the wardrobe module and binary.
const Version = "0.4.0"

// ModulePath is the import path of the module.
const ModulePath = "github.com/mesh-intelligence/wardrobe"
