// Пакет openapi — встроенный OpenAPI-контракт Dashboard Module.
package openapi

import _ "embed"

// Spec — содержимое openapi.yaml.
//
//go:embed openapi.yaml
var Spec []byte
