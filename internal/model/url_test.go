package model

import "testing"

func TestCoerceHTTPURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://example.com/v", "https://example.com/v"},
		{"http://example.com/v", "http://example.com/v"},
		{"example.com/watch?v=abc", "https://example.com/watch?v=abc"},
		{"//cdn.example.com/v", "https://cdn.example.com/v"},
		{"  example.com/v  ", "https://example.com/v"},
		{"", ""},
		{"localhost/v", "localhost/v"},
		{"ftp://example.com/v", "ftp://example.com/v"},
	}
	for _, tc := range cases {
		if got := CoerceHTTPURL(tc.in); got != tc.want {
			t.Fatalf("CoerceHTTPURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com/watch?v=abc",
		"example.com/watch?v=abc",
		"http://media.example.org/clip",
	}
	for _, u := range valid {
		if !ValidateURL(u) {
			t.Fatalf("ValidateURL(%q) = false, want true", u)
		}
	}
	invalid := []string{
		"",
		"   ",
		"not a url at all",
		"ftp://example.com/v",
		"localhost/v",
	}
	for _, u := range invalid {
		if ValidateURL(u) {
			t.Fatalf("ValidateURL(%q) = true, want false", u)
		}
	}
}

func TestNormalizeBatchURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"lowercases scheme and host",
			"HTTPS://EXAMPLE.com/Watch",
			"https://example.com/Watch",
		},
		{
			"strips tracking params and sorts the rest",
			"https://example.com/watch?utm_source=feed&v=abc&b=2&a=1",
			"https://example.com/watch?a=1&b=2&v=abc",
		},
		{
			"drops fragment",
			"https://example.com/watch?v=abc#t=30",
			"https://example.com/watch?v=abc",
		},
		{
			"trims trailing slash",
			"https://example.com/watch/",
			"https://example.com/watch",
		},
		{
			"keeps root slash",
			"https://example.com/",
			"https://example.com/",
		},
		{
			"drops known tracking keys",
			"https://example.com/v?si=xyz&fbclid=123&id=9",
			"https://example.com/v?id=9",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeBatchURL(tc.in); got != tc.want {
				t.Fatalf("NormalizeBatchURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeBatchURLEquivalence(t *testing.T) {
	variants := []string{
		"https://example.com/watch?v=abc",
		"https://EXAMPLE.com/watch?v=abc&utm_campaign=share",
		"example.com/watch?v=abc#start",
		"https://example.com/watch/?v=abc",
	}
	want := NormalizeBatchURL(variants[0])
	for _, v := range variants[1:] {
		if got := NormalizeBatchURL(v); got != want {
			t.Fatalf("NormalizeBatchURL(%q) = %q, want %q", v, got, want)
		}
	}
}
