// Copyright 2024 The Brain B2B Authors
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

package pricelist

import "fmt"

// Client faults never terminate the process. Each renders as a small
// Ukrainian HTML page behind a 401 status.
var clientCatalog = map[uint32]string{
	1:  "Помилка 1: Відсутній параметр format",
	2:  "Помилка 2: Формат прайс-листа не підтримується",
	3:  "Помилка 3: Відсутній параметр full",
	4:  "Помилка 4: Тип прайсу не підтримується",
	5:  "Помилка 5: Відсутній параметр companyID",
	6:  "Помилка 6: Невірний формат companyID",
	7:  "Помилка 7: Відсутній параметр targetID",
	8:  "Помилка 8: Невірний формат targetID",
	9:  "Помилка 9: Відсутній параметр lang",
	10: "Помилка 10: Невірний формат lang",
	11: "Помилка 11: Відсутній параметр time",
	12: "Помилка 12: Невірний формат time",
	13: "Помилка 13: Відсутній параметр userID",
	14: "Помилка 14: Невірний формат userID",
	15: "Помилка 15: Відсутній параметр token",
	16: "Помилка 16: Невірний token",
	17: "Помилка 17: Доступ заборонено (companyID не знайдено)",
	18: "Помилка 18: Доступ заборонено (userID не знайдено)",
	19: "Помилка 19: Доступ заборонено (profilesID не встановлено)",
	20: "Помилка 20: Неможливо перевірити директорію cache для прайсів",
	21: "Помилка 21: Неможливо видалити застарілі cache-файли для прайсів",
	22: "Помилка 22: Неможливо видалити cache-файли для прайсів",
	23: "Помилка 23: targetID повинен бути > 0",
	24: "Помилка 24: Сервер прайсів зупинено",
	25: "Помилка 25: Невідомий targetID",
	26: "Помилка 26: До targetID не прив'язан склад",
	27: "Помилка 27: Неможливо отримати ціни",
	28: "Помилка 28: Неможливо прочитати ціни",
	29: "Помилка 29: Неможливо сформувати XLSX файл",
	30: "Помилка 30: Неможливо сформувати XML файл",
	31: "Помилка 31: Неможливо сформувати JSON файл",
	32: "Помилка 32: Неможливо сформувати PHP файл",
}

func clientText(code uint32) string {
	if text, ok := clientCatalog[code]; ok {
		return text
	}
	return "Невідома помилка"
}

func errorPage(code uint32) []byte {
	return []byte(fmt.Sprintf("<!DOCTYPE HTML><html><head><title>PriceList</title><meta charset=\"utf-8\"/></head><body>%s</body></html>", clientText(code)))
}

// errorResponse wraps the fault page into a complete HTTP reply.
func errorResponse(code uint32) []byte {
	page := errorPage(code)
	head := fmt.Sprintf("HTTP/1.1 401 Unauthorized\r\nContent-Type: text/html; charset=utf-8\r\nContent-Length: %d\r\n\r\n", len(page))
	return append([]byte(head), page...)
}
