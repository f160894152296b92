// Package httpstages provides pipeline steps for HTTP requests and response handling.
//
// Use Get or Fetch to perform a GET request, ParseJSON to unmarshal the response body,
// and Expect to verify the parsed result and fail the step if it is not as expected.
//
// A task that checks a status endpoint:
//
//	task := pipeline.NewTask("check-api").
//		Pre(httpstages.Get(nil, "https://api.example.com/status")).
//		Action(httpstages.ParseJSON()).
//		Post(httpstages.ExpectField("status", "ok"))
//
// Register adds the same steps to a config.Registry under names such as
// "http.get" and "json.parse".
package httpstages
