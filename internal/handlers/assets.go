package handlers

import "encoding/base64"

// pixelBase64 is a transparent 1x1 PNG.
const pixelBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// Pixel is the image returned for every tracked request.
var Pixel = mustDecode(pixelBase64)

// IndexPage is the landing page. It embeds a pixel so that visiting the
// page is itself tracked.
const IndexPage = `
<html>
    <head>
        <link rel="shortcut icon" href="/p/favicon?v=1" type="image/png">
    </head>
    hello! <img src="/p/163e71e1a222461fac0a139dddacf1d5"/>
</html>
`

func mustDecode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic("invalid embedded pixel: " + err.Error())
	}
	return b
}
