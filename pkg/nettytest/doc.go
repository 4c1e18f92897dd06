// Package nettytest runs a hosted web application for the lifetime of a test.
//
// # Basic Usage
//
// Lay out the application's files, optionally alter its configuration, start
// it and make requests:
//
//	func TestSite(t *testing.T) {
//	    site := nettytest.New(t).
//	        WithFile("index.html", "<h1>hello</h1>").
//	        WithWebConfig(config).
//	        WithSetting("Mode", "test")
//
//	    url := site.Start()
//
//	    resp, err := http.Get(url + "index.html")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer resp.Body.Close()
//
//	    site.AssertCalled(t, "GET", "/index.html")
//	}
//
// The site is stopped, and its configuration file restored, when the test
// ends.
//
// # Pipelines
//
// Static files are served by default. WithPipeline and WithHandler replace
// the application pipeline:
//
//	site := nettytest.New(t).WithHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    fmt.Fprint(w, "dynamic")
//	}))
//
// # Assertions
//
// Paths given to the assertion helpers are relative to the virtual path:
//
//	site.AssertCalledTimes(t, "POST", "/svc.asmx/Add", 2)
//	site.AssertNotCalled(t, "DELETE", "/items/{id}")
//
//	for _, req := range site.Requests() {
//	    req.AssertHeader(t, "Content-Type", "application/json")
//	}
package nettytest
