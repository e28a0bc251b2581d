// Package zpl renderiza etiquetas ZPL para la impresora térmica Zebra.
package zpl

import (
	"strings"
	"text/template"
)

// Plantilla de etiqueta de producto: nombre, SKU con código de barras Code128
// y fecha de ingreso. Dimensiones para la ZD888t (203 dpi, etiqueta 30x50mm).
var productLabelTmpl = template.Must(template.New("product").Parse(`^XA
^CI28
^PW240
^LL400
^FO10,10^A0N,26,26^FD{{.ItemName}}^FS
^FO10,50^A0N,24,24^FDSKU: {{.ItemCode}}^FS
^FO10,90^BCN,80,Y,N,N^FD{{.ItemCode}}^FS
^FO10,190^A0N,22,22^FDFECHA: {{.EntryDate}}^FS
^XZ`))

// ProductLabel datos de una etiqueta de producto.
type ProductLabel struct {
	ItemCode  string
	ItemName  string
	EntryDate string // dd-mm-aaaa
}

// RenderProductLabel devuelve el ZPL de la etiqueta.
func RenderProductLabel(l ProductLabel) string {
	var b strings.Builder
	// La plantilla es estática y los campos son texto plano: no puede fallar.
	_ = productLabelTmpl.Execute(&b, l)
	return b.String()
}
