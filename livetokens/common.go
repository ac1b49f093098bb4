// Copyright 2026 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2026 Charles University, Faculty of Arts,
//                Department of Linguistics
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package livetokens

import "strings"

type Attr struct {
	Name      string `json:"name"`
	VertIdx   int    `json:"vertIdx"`
	IsUDFeats bool   `json:"isUdFeats"`
}

type AttrList []Attr

func (a AttrList) LenWithoutUDFeats() int {
	var ans int
	for _, v := range a {
		if !v.IsUDFeats {
			ans++
		}
	}
	return ans
}

func (a AttrList) WithoutUDFeatsAsCommaDelimited() string {
	ans := make([]string, 0, len(a))
	for _, item := range a {
		if !item.IsUDFeats {
			ans = append(ans, item.Name)
		}
	}
	return strings.Join(ans, ", ")
}

// -------

type AttrEntry struct {
	Name  string
	Value string
}

// -------

type AttrAndVal struct {
	Name   string   `json:"attr"`
	Value  string   `json:"value"`
	Values []string `json:"values"`
}
