package element

// Div creates a <div> element.
func Div(args ...any) *Element { return New("div", args...) }

// Span creates a <span> element.
func Span(args ...any) *Element { return New("span", args...) }

// P creates a <p> element.
func P(args ...any) *Element { return New("p", args...) }

// H1 creates an <h1> element.
func H1(args ...any) *Element { return New("h1", args...) }

// H2 creates an <h2> element.
func H2(args ...any) *Element { return New("h2", args...) }

// H3 creates an <h3> element.
func H3(args ...any) *Element { return New("h3", args...) }

// Button creates a <button> element.
func Button(args ...any) *Element { return New("button", args...) }

// Input creates an <input> element.
func Input(args ...any) *Element { return New("input", args...) }

// Form creates a <form> element.
func Form(args ...any) *Element { return New("form", args...) }

// Label creates a <label> element.
func Label(args ...any) *Element { return New("label", args...) }

// Ul creates a <ul> element.
func Ul(args ...any) *Element { return New("ul", args...) }

// Li creates an <li> element.
func Li(args ...any) *Element { return New("li", args...) }

// Anchor creates an <a> element.
func Anchor(args ...any) *Element { return New("a", args...) }

// Img creates an <img> element.
func Img(args ...any) *Element { return New("img", args...) }

// Table creates a <table> element.
func Table(args ...any) *Element { return New("table", args...) }

// Tr creates a <tr> element.
func Tr(args ...any) *Element { return New("tr", args...) }

// Td creates a <td> element.
func Td(args ...any) *Element { return New("td", args...) }

// Section creates a <section> element.
func Section(args ...any) *Element { return New("section", args...) }

// Em creates an <em> element.
func Em(args ...any) *Element { return New("em", args...) }

// Hr creates an <hr> element.
func Hr(args ...any) *Element { return New("hr", args...) }
