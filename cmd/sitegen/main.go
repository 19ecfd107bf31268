// Command sitegen builds and serves a Markdown blog.
package main

func main() {
	Execute()
}
